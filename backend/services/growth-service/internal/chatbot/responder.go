package chatbot

import "strings"

const fallbackAnswer = "Lo siento, no tengo una respuesta específica para eso. Mi conocimiento se centra en la desnutrición crónica infantil y su prevención. Intenta preguntar sobre la importancia de la nutrición en la primera infancia o sobre las causas de la desnutrición."

// Rule answers any question containing one of Keywords.
type Rule struct {
	Keywords []string
	Answer   string
}

// DefaultRules is the built-in FAQ, checked in order.
var DefaultRules = []Rule{
	{
		Keywords: []string{"desnutrición crónica"},
		Answer:   "La desnutrición crónica es el retraso en la talla para la edad, resultado de una privación nutricional prolongada. Afecta el desarrollo físico y cognitivo de los niños, con consecuencias irreversibles si no se atiende a tiempo. La medición principal es la talla para la edad, comparada con los estándares de la OMS.",
	},
	{
		Keywords: []string{"alimentación", "dieta"},
		Answer:   "Una alimentación adecuada para prevenir la desnutrición incluye alimentos ricos en proteínas (huevos, legumbres, carnes), hierro, zinc (espinacas, lentejas) y vitaminas, además de una buena hidratación. La lactancia materna exclusiva es clave hasta los 6 meses.",
	},
	{
		Keywords: []string{"qué hacer", "recomiendas"},
		Answer:   "Si sospechas que un niño tiene desnutrición, es vital consultar a un pediatra o nutricionista. Una intervención temprana con una dieta balanceada y suplementos puede revertir los efectos a corto plazo.",
	},
}

// Responder matches lower-cased questions against its rules; the first match wins.
type Responder struct {
	rules    []Rule
	fallback string
}

// NewResponder uses DefaultRules when rules is empty.
func NewResponder(rules []Rule) *Responder {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Responder{rules: rules, fallback: fallbackAnswer}
}

// Reply never fails; unknown questions get the fallback text.
func (r *Responder) Reply(question string) string {
	q := strings.ToLower(question)
	for _, rule := range r.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(q, kw) {
				return rule.Answer
			}
		}
	}
	return r.fallback
}
