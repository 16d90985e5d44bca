package frames

// SampleSize returns the largest power-of-two divisor that keeps a
// srcW x srcH source at least reqW x reqH after subsampling. It is 1 when
// the source is already within the requested box.
func SampleSize(srcW, srcH, reqW, reqH int) int {
	sample := 1
	if reqW <= 0 || reqH <= 0 {
		return sample
	}
	if srcH > reqH || srcW > reqW {
		halfH := srcH / 2
		halfW := srcW / 2
		for halfH/sample >= reqH && halfW/sample >= reqW {
			sample *= 2
		}
	}
	return sample
}

// orientedSampleSize is SampleSize for a source whose EXIF orientation is
// not known yet: the result is safe whether or not width and height swap.
func orientedSampleSize(srcW, srcH, reqW, reqH int) int {
	return min(SampleSize(srcW, srcH, reqW, reqH), SampleSize(srcH, srcW, reqW, reqH))
}
