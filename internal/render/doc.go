// Package render draws the health timeline as an indexed-color PNG.
//
// The image is one pixel column per timeline record, most recent at the
// right edge, on a fixed four-color palette: gray for no data, green
// for healthy, red for unhealthy, black for day-boundary markers and
// date labels. Rendering never fails; any internal error degrades to a
// blank gray placeholder of the same dimensions.
package render
