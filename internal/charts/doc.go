// Package charts renders the report figures.
//
// StaticRenderer draws per-question PNGs with gonum/plot, SummaryRenderer
// draws the ranking overview with go-chart, InteractiveRenderer builds a
// single go-echarts HTML page and ChromeRasterizer screenshots that page
// through headless Chrome.
package charts
