package models

// Site (sede) is a named location tickets are submitted from.
type Site struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"nombre" db:"nombre"`
}

// ProblemType is one taxonomy entry: a purpose with up to three category
// slots. Empty slots are stored as empty strings.
type ProblemType struct {
	ID        int64  `json:"id" db:"id"`
	Purpose   string `json:"descripcion" db:"descripcion"`
	Category1 string `json:"categoria" db:"categoria"`
	Category2 string `json:"categoria_2" db:"categoria_2"`
	Category3 string `json:"categoria_3" db:"categoria_3"`
}

// Categories returns the non-empty category slots in declaration order.
func (p *ProblemType) Categories() []string {
	out := make([]string, 0, 3)
	for _, c := range []string{p.Category1, p.Category2, p.Category3} {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}
