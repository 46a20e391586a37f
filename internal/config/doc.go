// Package config loads tracker configuration files.
//
// A config is YAML checked against an embedded CUE schema before it is
// decoded, so shape errors carry file positions:
//
//	context: "#feed"
//	min_height: 600
//	top: 120
//	bottom: "#comments"
//	throttle: 250ms
//	distances:
//	  percentage:
//	    every: [25]
//	  element:
//	    each: ["#footer"]
//	dispatch:
//	  category: articles
//	  label: /posts/hello
//
// Config.EngineOptions turns a loaded config into engine options.
package config
