// Package ir provides the shared value types for scrolldepth.
//
// This package contains type definitions and their canonical encoding only.
// All other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Depths are whole pixels (int64); no floats cross a package boundary
//     inside a Mark or Crossing
//   - A MeasurementSpec is comparable and doubles as the registry key
//   - Only Label carries identity across mark recomputations
//   - All JSON tags use snake_case
package ir
