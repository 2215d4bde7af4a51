package tributos

import "math"

// DeducaoDependenteReferencia is the per-dependent income-tax deduction used
// when the caller does not supply one.
const DeducaoDependenteReferencia = 189.59

// CalcularINSS computes the progressive employee social-security contribution
// on the marginal-bracket scheme: each slice of salary pays its own bracket's
// rate. Passing nil faixas uses the 2024 reference table.
func CalcularINSS(salario float64, faixas []FaixaINSS) float64 {
	if faixas == nil {
		faixas = FaixasINSS2024()
	}

	var inss float64
	restante := salario
	limiteAnterior := 0.0

	for _, faixa := range faixas {
		if restante <= 0 {
			break
		}
		base := math.Min(restante, faixa.Limite-limiteAnterior)
		inss += base * (faixa.Aliquota / 100)
		restante -= base
		limiteAnterior = faixa.Limite
	}

	return arredondar(inss)
}

// CalcularIRRF computes the withheld income tax: the base is salary minus the
// social-security contribution minus the dependent deductions, taxed at the
// first bracket whose ceiling covers it, less that bracket's standard
// deduction, floored at zero. Nil faixas and a zero deducaoPorDependente fall
// back to the 2024 reference values.
func CalcularIRRF(salario, inss float64, dependentes int, faixas []FaixaIRRF, deducaoPorDependente float64) float64 {
	if faixas == nil {
		faixas = FaixasIRRF2024()
	}
	if deducaoPorDependente == 0 {
		deducaoPorDependente = DeducaoDependenteReferencia
	}

	base := salario - inss - float64(dependentes)*deducaoPorDependente
	if base <= 0 {
		return 0
	}

	for _, faixa := range faixas {
		if base <= faixa.Limite {
			irrf := base*(faixa.Aliquota/100) - faixa.Deducao
			return math.Max(0, arredondar(irrf))
		}
	}
	return 0
}

// CalcularFGTS computes the flat fund deposit. Zero aliquota uses the 8%
// reference rate.
func CalcularFGTS(salario, aliquota float64) float64 {
	if aliquota == 0 {
		aliquota = 8.0
	}
	return arredondar(salario * (aliquota / 100))
}

// arredondar rounds to cents the way the reference implementation does:
// scale, round half away from zero, scale back.
func arredondar(valor float64) float64 {
	return math.Round(valor*100) / 100
}
