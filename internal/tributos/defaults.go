// Package tributos resolves the tax parameters in effect for a competência
// and provides the pure progressive calculators the audit runs on. Resolution
// degrades to the compiled-in reference tables: the audit must always be able
// to run with some parameter set.
package tributos

import "math"

// FaixaINSS is one marginal social-security bracket. Limite is the bracket's
// upper salary bound.
type FaixaINSS struct {
	Limite   float64
	Aliquota float64
}

// FaixaIRRF is one income-tax bracket with its standard deduction.
type FaixaIRRF struct {
	Limite   float64
	Aliquota float64
	Deducao  float64
}

// Parametros are the flat rates and reference values of a vigência.
type Parametros struct {
	SalarioMinimo         float64
	TetoINSS              float64
	AliquotaFGTS          float64
	DeducaoDependenteIRRF float64
	AliquotaINSSPatronal  float64
	AliquotaRAT           float64
	AliquotaTerceiros     float64
}

// Conjunto is a fully resolved parameter set.
type Conjunto struct {
	Parametros Parametros
	FaixasINSS []FaixaINSS
	FaixasIRRF []FaixaIRRF
}

// 2024 reference tables, used whenever no configured vigência resolves.

func FaixasINSS2024() []FaixaINSS {
	return []FaixaINSS{
		{Limite: 1412.00, Aliquota: 7.5},
		{Limite: 2666.68, Aliquota: 9.0},
		{Limite: 4000.03, Aliquota: 12.0},
		{Limite: 7786.02, Aliquota: 14.0},
	}
}

func FaixasIRRF2024() []FaixaIRRF {
	return []FaixaIRRF{
		{Limite: 2259.20, Aliquota: 0, Deducao: 0},
		{Limite: 2826.65, Aliquota: 7.5, Deducao: 169.44},
		{Limite: 3751.05, Aliquota: 15.0, Deducao: 381.44},
		{Limite: 4664.68, Aliquota: 22.5, Deducao: 662.77},
		{Limite: math.Inf(1), Aliquota: 27.5, Deducao: 896.00},
	}
}

func ParametrosDefault() Parametros {
	return Parametros{
		SalarioMinimo:         1412.00,
		TetoINSS:              7786.02,
		AliquotaFGTS:          8.00,
		DeducaoDependenteIRRF: 189.59,
		AliquotaINSSPatronal:  20.00,
		AliquotaRAT:           2.00,
		AliquotaTerceiros:     5.80,
	}
}

func ConjuntoDefault() *Conjunto {
	return &Conjunto{
		Parametros: ParametrosDefault(),
		FaixasINSS: FaixasINSS2024(),
		FaixasIRRF: FaixasIRRF2024(),
	}
}
