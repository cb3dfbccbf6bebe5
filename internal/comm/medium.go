// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

// Package comm defines communication media and the per-context region
// policies that decide which co-located users can exchange them.
package comm

import "github.com/samber/oops"

// Medium identifies a communication channel type.
type Medium string

// Communication media.
const (
	MediumText  Medium = "text"
	MediumVoice Medium = "voice"
	MediumVideo Medium = "video"
	MediumEmote Medium = "emote"
)

// ErrInvalidMedium is returned for media outside the known set.
var ErrInvalidMedium = oops.Code("COMM_INVALID_MEDIUM").Errorf("invalid communication medium")

// Validate checks that the medium is one of the known values.
func (m Medium) Validate() error {
	switch m {
	case MediumText, MediumVoice, MediumVideo, MediumEmote:
		return nil
	default:
		return oops.With("medium", string(m)).Wrap(ErrInvalidMedium)
	}
}

// String returns the string representation of the medium.
func (m Medium) String() string {
	return string(m)
}

// MediaSet is the set of media an area permits. Membership is static per
// area and independent of who else is present.
type MediaSet map[Medium]struct{}

// NewMediaSet builds a set from the given media. Invalid media are an error.
func NewMediaSet(media ...Medium) (MediaSet, error) {
	set := make(MediaSet, len(media))
	for _, m := range media {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		set[m] = struct{}{}
	}
	return set, nil
}

// Allows reports whether the medium is permitted by the set.
func (s MediaSet) Allows(m Medium) bool {
	_, ok := s[m]
	return ok
}
