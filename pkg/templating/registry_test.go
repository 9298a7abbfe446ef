package templating

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func constant(s string) Resolver {
	return func(context.Context, string, *IndexContext) (*structpb.Value, error) {
		return structpb.NewStringValue(s), nil
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("UPPER", constant("x")))

	assert.Error(t, r.Register("UPPER", constant("y")))
	assert.Error(t, r.Register("", constant("y")))
	assert.Error(t, r.Register("NIL", nil))
	assert.Equal(t, []string{"UPPER"}, r.Commands())
}

func TestResolveUnknownCommandIsVerbatim(t *testing.T) {
	r := NewRegistry()

	value, err := r.Resolve(context.Background(), "https", "//example.com:8080/a", NewIndexContext(nil))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com:8080/a", value.GetStringValue())
}

func TestResolvePassesArgumentAndContext(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("ECHO", func(_ context.Context, arg string, idx *IndexContext) (*structpb.Value, error) {
		idx.Position(arg, 1)
		return structpb.NewStringValue(arg), nil
	}))
	idx := NewIndexContext(nil)

	value, err := r.Resolve(context.Background(), "ECHO", "a:b", idx)
	require.NoError(t, err)
	assert.Equal(t, "a:b", value.GetStringValue())
	_, ok := idx.Lookup("a:b")
	assert.True(t, ok)
}

func TestResolveNilValueBecomesNull(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("NOTHING", func(context.Context, string, *IndexContext) (*structpb.Value, error) {
		return nil, nil
	}))

	value, err := r.Resolve(context.Background(), "NOTHING", "", NewIndexContext(nil))
	require.NoError(t, err)
	_, isNull := value.GetKind().(*structpb.Value_NullValue)
	assert.True(t, isNull)
}

func TestResolvePropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	r := NewRegistry()
	require.NoError(t, r.Register("FAIL", func(context.Context, string, *IndexContext) (*structpb.Value, error) {
		return nil, boom
	}))

	_, err := r.Resolve(context.Background(), "FAIL", "x", NewIndexContext(nil))
	assert.ErrorIs(t, err, boom)
}
