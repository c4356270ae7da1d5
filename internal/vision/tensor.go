package vision

import (
	"image"
	"sort"

	"golang.org/x/image/draw"
)

const (
	inputWidth  = 224
	inputHeight = 224
)

var (
	imagenetMean = [3]float32{0.485, 0.456, 0.406}
	imagenetStd  = [3]float32{0.229, 0.224, 0.225}
)

type LabelScore struct {
	Label string  `json:"label"`
	Index int     `json:"index"`
	Score float32 `json:"score"`
}

// toTensor resizes img to 224x224 and lays it out as NCHW float32.
func toTensor(img image.Image) []float32 {
	dst := image.NewRGBA(image.Rect(0, 0, inputWidth, inputHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	const plane = inputWidth * inputHeight
	out := make([]float32, 3*plane)
	for y := 0; y < inputHeight; y++ {
		for x := 0; x < inputWidth; x++ {
			i := y*inputWidth + x
			px := dst.RGBAAt(x, y)
			out[i] = (float32(px.R)/255 - imagenetMean[0]) / imagenetStd[0]
			out[plane+i] = (float32(px.G)/255 - imagenetMean[1]) / imagenetStd[1]
			out[2*plane+i] = (float32(px.B)/255 - imagenetMean[2]) / imagenetStd[2]
		}
	}
	return out
}

func topK(scores []float32, labels []string, k int) []LabelScore {
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] > scores[idx[b]] })

	if k > len(idx) {
		k = len(idx)
	}
	out := make([]LabelScore, 0, k)
	for _, i := range idx[:k] {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		out = append(out, LabelScore{Label: label, Index: i, Score: scores[i]})
	}
	return out
}
