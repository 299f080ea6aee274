package password

// Policy define los requisitos mínimos para contraseñas nuevas.
type Policy struct {
	MinLength int
}

// Validate valida s contra la política. reasons viene vacío si ok.
func (p Policy) Validate(s string) (ok bool, reasons []string) {
	min := p.MinLength
	if min <= 0 {
		min = 8
	}
	if len([]rune(s)) < min {
		reasons = append(reasons, "too_short")
	}
	return len(reasons) == 0, reasons
}
