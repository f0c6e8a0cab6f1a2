package presentation

import (
	"github.com/zjrosen/camel/internal/registry"
)

// TagDTO represents one registered dumper or loader for presentation.
type TagDTO struct {
	Registry string `json:"registry"`
	Kind     string `json:"kind"`
	Tag      string `json:"tag"`
	Name     string `json:"name"`
	Version  string `json:"version"`
	GoType   string `json:"go_type,omitempty"` // dumpers only
	Frozen   bool   `json:"frozen"`
}

// FromRegistry converts every entry of r to DTOs.
func FromRegistry(r *registry.Registry) []TagDTO {
	entries := r.Entries()
	dtos := make([]TagDTO, 0, len(entries))
	for _, e := range entries {
		dto := TagDTO{
			Registry: e.Registry,
			Kind:     e.Kind,
			Tag:      e.Tag.String(),
			Name:     e.Tag.Name,
			Version:  e.Tag.Version.String(),
			Frozen:   r.Frozen(),
		}
		if e.Type != nil {
			dto.GoType = e.Type.String()
		}
		dtos = append(dtos, dto)
	}
	return dtos
}

// FromRegistries converts registries in composition order.
func FromRegistries(regs []*registry.Registry) []TagDTO {
	dtos := make([]TagDTO, 0)
	for _, r := range regs {
		dtos = append(dtos, FromRegistry(r)...)
	}
	return dtos
}

// CheckResultDTO is the outcome of loading one input.
type CheckResultDTO struct {
	Path      string `json:"path"`
	Documents int    `json:"documents"`
	Error     string `json:"error,omitempty"`
}

// OK reports whether the input loaded cleanly.
func (r CheckResultDTO) OK() bool { return r.Error == "" }
