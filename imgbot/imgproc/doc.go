// Package imgproc implements the grayscale image transforms offered by the bot.
//
// Images are decoded from JPEG, PNG or WebP, converted to 8-bit grayscale and
// written back as JPEG next to a configurable output directory.
package imgproc
