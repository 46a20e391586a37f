package browser

// All scripts treat "" and "body" as the document body.

const heightJS = `() => {
	const b = document.body, h = document.documentElement;
	return Math.max(b.scrollHeight, b.offsetHeight, h.clientHeight, h.scrollHeight, h.offsetHeight);
}`

const regionJS = `(sel) => {
	const vh = window.innerHeight;
	if (sel === "" || sel === "body") {
		const b = document.body, h = document.documentElement;
		const height = Math.max(b.scrollHeight, b.offsetHeight, h.clientHeight, h.scrollHeight, h.offsetHeight);
		return {found: true, scroll_height: height, scroll_top: window.scrollY,
			rect_top: -window.scrollY, client_height: height, viewport: vh};
	}
	const el = document.querySelector(sel);
	if (!el) return {found: false};
	const r = el.getBoundingClientRect();
	return {found: true, scroll_height: el.scrollHeight, scroll_top: el.scrollTop,
		rect_top: r.top, client_height: el.clientHeight, viewport: vh};
}`

const elementsJS = `(ctx, sel) => {
	const body = ctx === "" || ctx === "body";
	const root = body ? document : document.querySelector(ctx);
	if (!root) return null;
	const base = body ? -window.scrollY : root.getBoundingClientRect().top - root.scrollTop;
	return Array.from(root.querySelectorAll(sel), (el) => el.getBoundingClientRect().top - base);
}`

const boundJS = `(sel) => {
	const el = document.querySelector(sel);
	return el ? el.getBoundingClientRect().top + window.scrollY : null;
}`

const pollJS = `(ctx) => {
	let region = 0;
	if (ctx !== "" && ctx !== "body") {
		const el = document.querySelector(ctx);
		if (el) region = el.scrollTop;
	}
	return {scroll_y: window.scrollY, region_scroll: region,
		viewport: window.innerHeight, width: window.innerWidth};
}`
