// Package export hands computed series to their consumers: a series
// directory on disk and, optionally, a PostgreSQL database.
package export

import (
	"context"
	"errors"

	"imagemath/internal/models"
)

// Assembler receives a finished series together with its description.
// Ownership of the series passes to the assembler for the duration of the
// call; it must not modify it.
type Assembler interface {
	Assemble(ctx context.Context, series *models.Series, description string) error
}

// AssemblerFunc adapts a function to the Assembler interface.
type AssemblerFunc func(ctx context.Context, series *models.Series, description string) error

// Assemble calls f.
func (f AssemblerFunc) Assemble(ctx context.Context, series *models.Series, description string) error {
	return f(ctx, series, description)
}

type multi []Assembler

// Multi returns an Assembler that passes the series to each of assemblers in
// turn. Every assembler runs even if an earlier one fails; the errors are
// joined.
func Multi(assemblers ...Assembler) Assembler {
	return multi(assemblers)
}

func (m multi) Assemble(ctx context.Context, series *models.Series, description string) error {
	var errs []error
	for _, a := range m {
		if err := a.Assemble(ctx, series, description); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
