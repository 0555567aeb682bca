package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseImageReference(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    ImageReference
		wantErr bool
	}{
		{name: "repository and tag", in: "app_build:main", want: ImageReference{Repository: "app_build", Tag: "main"}},
		{name: "missing tag defaults to latest", in: "app_build", want: ImageReference{Repository: "app_build", Tag: "latest"}},
		{name: "empty reference", in: "", wantErr: true},
		{name: "missing repository", in: ":latest", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseImageReference(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestImageReferenceString(t *testing.T) {
	ref := ImageReference{Repository: "svc_build", Tag: "feature-x"}
	assert.Equal(t, "svc_build:feature-x", ref.String())
}

func TestStageTags(t *testing.T) {
	tags := StageTags("svc", StageBuild, "feature-x")

	require.Len(t, tags, 2)
	assert.Equal(t, ImageReference{Repository: "svc_build", Tag: "latest"}, tags[0])
	assert.Equal(t, ImageReference{Repository: "svc_build", Tag: "feature-x"}, tags[1])
}

func TestMostSpecificPrefersBranchTag(t *testing.T) {
	tags := StageTags("svc", StagePrepare, "main")
	assert.Equal(t, ImageReference{Repository: "svc_prepare", Tag: "main"}, MostSpecific(tags))
	assert.Equal(t, ImageReference{}, MostSpecific(nil))
}
