// Package repository define las entidades del dominio y las interfaces
// de persistencia que implementan los adapters de internal/store.
//
// Reglas generales:
//   - Toda entidad pertenece a exactamente un user pool (tenant). Las
//     operaciones reciben el poolID y NUNCA cruzan pools.
//   - Los adapters mapean errores del driver a los errores sentinel de
//     errors.go (ErrNotFound, ErrConflict, ...). La violación de unique
//     constraint en el insert es la señal de conflicto autoritativa,
//     no el pre-check.
//   - Los timestamps son UTC.
package repository
