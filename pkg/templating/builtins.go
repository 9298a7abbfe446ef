package templating

import (
	"context"
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/jsonhammer/jsonhammer/pkg/apperr"
	"github.com/jsonhammer/jsonhammer/pkg/assets"
	"github.com/jsonhammer/jsonhammer/pkg/observability"
	"github.com/jsonhammer/jsonhammer/pkg/uploader"
)

const (
	// IMG_FROM_ASSETS:<dir> picks a random file of assets/<dir>.
	CommandImageFromAssets = "IMG_FROM_ASSETS"
	// RANDOM_FROM_ASSETS_JSON:<name> picks a random element of assets/<name>.json.
	CommandRandomFromJSON = "RANDOM_FROM_ASSETS_JSON"
	// PICK_FROM_ASSETS_WITHINDEX:<dir>,<key> picks the file of assets/<dir>
	// at the position shared by every use of <key> in the document.
	CommandPickWithIndex = "PICK_FROM_ASSETS_WITHINDEX"
)

// Builtins implements the built-in commands. Uploader is nil unless images
// are to be uploaded, in which case picked images resolve to their content
// identifier instead of their local path.
type Builtins struct {
	Store    *assets.Store
	Uploader uploader.Uploader
	Logger   *observability.HammerLogger
}

func (b *Builtins) Register(r *Registry) error {
	for command, resolver := range map[string]Resolver{
		CommandImageFromAssets: b.ImageFromAssets,
		CommandRandomFromJSON:  b.RandomFromJSON,
		CommandPickWithIndex:   b.PickWithIndex,
	} {
		if err := r.Register(command, resolver); err != nil {
			return err
		}
	}
	return nil
}

// NewDefaultRegistry returns a registry holding the built-in commands.
func NewDefaultRegistry(b *Builtins) (*Registry, error) {
	r := NewRegistry()
	if err := b.Register(r); err != nil {
		return nil, err
	}
	return r, nil
}

func (b *Builtins) ImageFromAssets(ctx context.Context, dir string, idx *IndexContext) (*structpb.Value, error) {
	names, err := b.Store.ListImages(dir, assets.Unordered)
	if err != nil {
		return nil, err
	}
	return b.image(ctx, dir, names[idx.Intn(len(names))])
}

func (b *Builtins) RandomFromJSON(_ context.Context, path string, idx *IndexContext) (*structpb.Value, error) {
	values, err := b.Store.LoadJSONArray(path)
	if err != nil {
		return nil, err
	}
	// cached values are shared between instantiations
	picked := values[idx.Intn(len(values))]
	return proto.Clone(picked).(*structpb.Value), nil
}

func (b *Builtins) PickWithIndex(ctx context.Context, arg string, idx *IndexContext) (*structpb.Value, error) {
	// both parts are used verbatim: "hats, slot" and "hats,slot" name different keys
	dir, key, ok := strings.Cut(arg, ",")
	if !ok || dir == "" || key == "" {
		return nil, apperr.InvalidFormat(
			CommandPickWithIndex+tokenSeparator+arg,
			"expected a directory and an index key",
			"Use "+CommandPickWithIndex+":<directory>,<indexKey>.",
			nil,
		)
	}

	names, err := b.Store.ListImages(dir, assets.Sorted)
	if err != nil {
		return nil, err
	}
	position := idx.Position(key, len(names))
	if position < 0 || position >= len(names) {
		return nil, apperr.IndexOutOfRange(b.Store.ImagePath(dir, "")+" ("+key+")", position, len(names))
	}
	b.Logger.Debug("picked by shared index", "asset", dir, "key", key, "position", position)
	return b.image(ctx, dir, names[position])
}

func (b *Builtins) image(ctx context.Context, dir, name string) (*structpb.Value, error) {
	path := b.Store.ImagePath(dir, name)
	if b.Uploader == nil {
		return structpb.NewStringValue(path), nil
	}

	b.Logger.Info("uploading image to IPFS", "asset", dir, "file", name)
	cid, err := b.Uploader.Upload(ctx, path)
	if err != nil {
		return nil, err
	}
	return structpb.NewStringValue(cid), nil
}
