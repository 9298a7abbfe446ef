package templating

import (
	"context"
	"fmt"
	"sort"

	"google.golang.org/protobuf/types/known/structpb"
)

// Resolver produces the value substituted for a templated token. It may
// record positions in idx; those are visible to every token resolved after
// it in the same instantiation.
type Resolver func(ctx context.Context, arg string, idx *IndexContext) (*structpb.Value, error)

// Registry maps command keywords to resolvers. Register everything before
// the registry is shared between goroutines.
type Registry struct {
	resolvers map[string]Resolver
}

func NewRegistry() *Registry {
	return &Registry{resolvers: make(map[string]Resolver)}
}

func (r *Registry) Register(command string, resolver Resolver) error {
	if command == "" || resolver == nil {
		return fmt.Errorf("registry: invalid resolver for command %q", command)
	}
	if _, ok := r.resolvers[command]; ok {
		return fmt.Errorf("registry: command %q already registered", command)
	}
	r.resolvers[command] = resolver
	return nil
}

func (r *Registry) Lookup(command string) (Resolver, bool) {
	resolver, ok := r.resolvers[command]
	return resolver, ok
}

// Resolve dispatches to the resolver of command. An unknown command is not
// an error: the token comes back verbatim as a string.
func (r *Registry) Resolve(ctx context.Context, command, arg string, idx *IndexContext) (*structpb.Value, error) {
	resolver, ok := r.resolvers[command]
	if !ok {
		return structpb.NewStringValue(command + tokenSeparator + arg), nil
	}
	value, err := resolver(ctx, arg, idx)
	if err != nil {
		return nil, err
	}
	if value == nil {
		value = structpb.NewNullValue()
	}
	return value, nil
}

func (r *Registry) Commands() []string {
	commands := make([]string, 0, len(r.resolvers))
	for command := range r.resolvers {
		commands = append(commands, command)
	}
	sort.Strings(commands)
	return commands
}
