package vision

import (
	"fmt"
	"image"
	"strings"

	"facelyze-api/internal/media"
)

// Verdict is the prescreen outcome for one photo.
type Verdict struct {
	Accepted bool         `json:"accepted"`
	Labels   []LabelScore `json:"labels,omitempty"`
}

type Screener interface {
	Screen(photo media.Photo) (Verdict, error)
}

// PassThrough accepts every photo. It is used when the prescreen is disabled.
type PassThrough struct{}

func (PassThrough) Screen(media.Photo) (Verdict, error) {
	return Verdict{Accepted: true}, nil
}

type labeler interface {
	Classify(img image.Image) ([]LabelScore, error)
}

// LabelScreener accepts a photo when any top-k label is on the accept list.
type LabelScreener struct {
	model  labeler
	accept map[string]struct{}
}

func NewLabelScreener(model labeler, acceptLabels []string) *LabelScreener {
	accept := make(map[string]struct{}, len(acceptLabels))
	for _, l := range acceptLabels {
		if l = strings.ToLower(strings.TrimSpace(l)); l != "" {
			accept[l] = struct{}{}
		}
	}
	return &LabelScreener{model: model, accept: accept}
}

func (s *LabelScreener) Screen(photo media.Photo) (Verdict, error) {
	img, err := media.Decode(photo)
	if err != nil {
		return Verdict{}, err
	}
	labels, err := s.model.Classify(img)
	if err != nil {
		return Verdict{}, fmt.Errorf("prescreen photo failed: %w", err)
	}

	v := Verdict{Labels: labels}
	for _, l := range labels {
		if _, ok := s.accept[strings.ToLower(l.Label)]; ok {
			v.Accepted = true
			break
		}
	}
	return v, nil
}
