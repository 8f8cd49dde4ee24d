package usecase

import (
	"docqa/internal/domain"
)

// ResolveTypes decides which source types to load from path.
//
// A file takes its single requested type, or the type its extension
// implies when none is requested. A directory needs at least one requested
// type; the result is deduplicated and in registry order.
func (r *SourceRegistry) ResolveTypes(path string, kind domain.PathKind, requested []domain.SourceType) ([]domain.SourceType, error) {
	wanted := make(map[domain.SourceType]bool, len(requested))
	for _, t := range requested {
		if _, ok := r.Lookup(t); !ok {
			return nil, r.unsupported(string(t))
		}
		wanted[t] = true
	}

	if kind == domain.PathFile {
		switch len(wanted) {
		case 0:
			t, err := r.typeForExtension(path)
			if err != nil {
				return nil, err
			}
			return []domain.SourceType{t}, nil
		case 1:
			return []domain.SourceType{requested[0]}, nil
		default:
			return nil, domain.ErrAmbiguousType
		}
	}

	if len(wanted) == 0 {
		return nil, domain.ErrNoTypeSpecified
	}

	types := make([]domain.SourceType, 0, len(wanted))
	for _, t := range r.Types() {
		if wanted[t] {
			types = append(types, t)
		}
	}
	return types, nil
}
