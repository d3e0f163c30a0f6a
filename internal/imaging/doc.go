// Package imaging loads input images and turns them into depth fields.
//
// Loading validates the extension (.jpg .jpeg .png .webp .bmp .tiff .tif),
// applies EXIF orientation and enforces per-side limits of 64..4096 pixels.
// Prepare then fits large images to 1024 pixels on the long side.
//
// # Depth Sources
//
// Depth inference is modeled by the DepthEstimator interface. Two
// implementations ship here:
//   - LuminanceEstimator: CIE L* lightness as depth, with an optional
//     Gaussian pre-blur
//   - DepthMapReader: reads a grayscale depth map exported by an external
//     model, keeping 16-bit precision when present
//
// Both return a relief.Grid with row 0 at the top of the image.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. Grid rows follow Y.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Estimators are stateless
// values and can be shared between goroutines.
package imaging
