// Package render moves meshes in and out of the process: STL files, shaded
// PNG previews and layer plots.
package render
