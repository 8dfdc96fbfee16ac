package shm

import "image"

// PutARGB writes img into dst as premultiplied ARGB8888, which is B, G, R, A
// in memory on little-endian hosts. dst must hold at least
// 4*width*height bytes.
func PutARGB(dst []byte, img *image.NRGBA) {
	b := img.Bounds()
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[(y-b.Min.Y)*img.Stride:]
		for x := 0; x < b.Dx(); x++ {
			r, g, bl, a := row[4*x], row[4*x+1], row[4*x+2], row[4*x+3]
			dst[i] = premul(bl, a)
			dst[i+1] = premul(g, a)
			dst[i+2] = premul(r, a)
			dst[i+3] = a
			i += 4
		}
	}
}

// PutRGBA writes an already premultiplied RGBA image as ARGB8888.
func PutRGBA(dst []byte, img *image.RGBA) {
	b := img.Bounds()
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[(y-b.Min.Y)*img.Stride:]
		for x := 0; x < b.Dx(); x++ {
			dst[i] = row[4*x+2]
			dst[i+1] = row[4*x+1]
			dst[i+2] = row[4*x]
			dst[i+3] = row[4*x+3]
			i += 4
		}
	}
}

func premul(c, a uint8) uint8 {
	return uint8(uint16(c) * uint16(a) / 255)
}
