package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescriptorRunCount(t *testing.T) {
	d := &Descriptor{}
	d.Add(
		From{Image: "alpine:3"},
		Copy{Src: "src", Dst: "/home/src"},
		Run{Command: "make"},
		Run{Command: "make install"},
		Cmd{Command: "sh"},
	)

	assert.Equal(t, 2, d.RunCount())
}

func TestDescriptorBaseImageSkipsAliasedStages(t *testing.T) {
	d := &Descriptor{}
	d.Add(
		From{Image: "golang:1.25", Alias: "tools"},
		From{Image: "alpine:3"},
	)

	assert.Equal(t, "alpine:3", d.BaseImage())
}

func TestDescriptorBaseImageEmpty(t *testing.T) {
	assert.Equal(t, "", (&Descriptor{}).BaseImage())
}
