package templating

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsonhammer/jsonhammer/pkg/apperr"
	"github.com/jsonhammer/jsonhammer/pkg/assets"
	"github.com/jsonhammer/jsonhammer/pkg/observability"
	"github.com/jsonhammer/jsonhammer/pkg/uploader/mocks"
)

func newUploadingBuiltins(t *testing.T, up *mocks.MockUploader) *Builtins {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "assets/hats/a.png", []byte("a"), 0o644))
	return &Builtins{
		Store:    assets.NewStore(fs, "assets", observability.NoOpLogger),
		Uploader: up,
		Logger:   observability.NoOpLogger,
	}
}

func TestImageUploadReturnsIdentifier(t *testing.T) {
	ctrl := gomock.NewController(t)
	up := mocks.NewMockUploader(ctrl)
	up.EXPECT().Upload(gomock.Any(), "assets/hats/a.png").Return("ipfs://QmA", nil).Times(2)
	b := newUploadingBuiltins(t, up)

	value, err := b.ImageFromAssets(context.Background(), "hats", NewIndexContext(nil))
	require.NoError(t, err)
	assert.Equal(t, "ipfs://QmA", value.GetStringValue())

	value, err = b.PickWithIndex(context.Background(), "hats,slot", NewIndexContext(nil))
	require.NoError(t, err)
	assert.Equal(t, "ipfs://QmA", value.GetStringValue())
}

func TestImageUploadFailurePropagates(t *testing.T) {
	ctrl := gomock.NewController(t)
	up := mocks.NewMockUploader(ctrl)
	up.EXPECT().Upload(gomock.Any(), gomock.Any()).Return("", apperr.Upload("assets/hats/a.png", 403, nil))
	b := newUploadingBuiltins(t, up)

	_, err := b.ImageFromAssets(context.Background(), "hats", NewIndexContext(nil))
	assert.ErrorIs(t, err, apperr.ErrUpload)
}

func TestDefaultRegistryCommands(t *testing.T) {
	r, err := NewDefaultRegistry(&Builtins{Logger: observability.NoOpLogger})
	require.NoError(t, err)
	assert.Equal(t, []string{CommandImageFromAssets, CommandPickWithIndex, CommandRandomFromJSON}, r.Commands())
}

func TestPickWithIndexKeyIsVerbatim(t *testing.T) {
	b := newUploadingBuiltins(t, nil)
	b.Uploader = nil
	idx := NewIndexContext(nil)

	_, err := b.PickWithIndex(context.Background(), "hats,slot", idx)
	require.NoError(t, err)
	_, err = b.PickWithIndex(context.Background(), "hats, slot", idx)
	require.NoError(t, err)

	_, ok := idx.Lookup("slot")
	assert.True(t, ok)
	_, ok = idx.Lookup(" slot")
	assert.True(t, ok)
	assert.Equal(t, 2, idx.Len())
}

func TestPickWithIndexDirectoryIsVerbatim(t *testing.T) {
	b := newUploadingBuiltins(t, nil)
	b.Uploader = nil

	_, err := b.PickWithIndex(context.Background(), " hats,slot", NewIndexContext(nil))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
