package templating

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/jsonhammer/jsonhammer/pkg/observability"
)

const tokenSeparator = ":"

// ParseToken splits a COMMAND:ARGUMENT string at its first separator.
func ParseToken(s string) (command, arg string, ok bool) {
	return strings.Cut(s, tokenSeparator)
}

// Walker resolves the templated tokens of a document.
type Walker struct {
	registry *Registry
	logger   *observability.HammerLogger
}

func NewWalker(registry *Registry, logger *observability.HammerLogger) *Walker {
	return &Walker{registry: registry, logger: logger}
}

// ResolveNode resolves node and everything below it, threading idx through
// the traversal in document order. Lists and structs are rewritten in
// place, so node must be a copy the caller owns.
func (w *Walker) ResolveNode(ctx context.Context, node *structpb.Value, idx *IndexContext) (*structpb.Value, error) {
	switch x := node.GetKind().(type) {
	case *structpb.Value_StringValue:
		return w.resolveString(ctx, node, x.StringValue, idx)
	case *structpb.Value_ListValue:
		values := x.ListValue.GetValues()
		for i, value := range values {
			resolved, err := w.ResolveNode(ctx, value, idx)
			if err != nil {
				return nil, err
			}
			values[i] = resolved
		}
		return node, nil
	case *structpb.Value_StructValue:
		if _, err := w.ResolveStruct(ctx, x.StructValue, idx); err != nil {
			return nil, err
		}
		return node, nil
	default:
		return node, nil
	}
}

// ResolveStruct resolves every field of s in place. Fields are visited in
// key order so that a seeded random source gives reproducible documents.
func (w *Walker) ResolveStruct(ctx context.Context, s *structpb.Struct, idx *IndexContext) (*structpb.Struct, error) {
	fields := s.GetFields()
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		resolved, err := w.ResolveNode(ctx, fields[key], idx)
		if err != nil {
			return nil, err
		}
		fields[key] = resolved
	}
	return s, nil
}

func (w *Walker) resolveString(ctx context.Context, node *structpb.Value, s string, idx *IndexContext) (*structpb.Value, error) {
	command, arg, ok := ParseToken(s)
	if !ok {
		return node, nil
	}
	if _, ok := w.registry.Lookup(command); !ok {
		return node, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w.logger.Debug("processing token", "command", command, "argument", arg)
	value, err := w.registry.Resolve(ctx, command, arg, idx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s, err)
	}
	return value, nil
}
