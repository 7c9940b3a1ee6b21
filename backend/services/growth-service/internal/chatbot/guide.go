// Package chatbot holds the canned feeding guides and the keyword-driven FAQ bot.
package chatbot

import "growthwatch/backend/services/growth-service/internal/growth"

const (
	chronicRiskGuide = `**Guía de Alimentación Personalizada:**
- **Énfasis en micronutrientes:** Incluir alimentos ricos en hierro y zinc (lentejas, carne, espinacas).
- **Aumentar la densidad calórica:** Añadir aceites saludables a las comidas para aumentar las calorías sin aumentar el volumen.
- **Proteínas de calidad:** Incorporar huevos, lácteos y legumbres en cada comida principal.
- **Frecuencia:** Ofrecer 5 a 6 comidas pequeñas y nutritivas a lo largo del día.`

	normalGuide = `**Guía de Alimentación para Crecimiento Saludable:**
- **Dieta balanceada:** Continuar con una dieta que incluya frutas, verduras, granos enteros y proteínas magras.
- **Hábitos saludables:** Fomentar el consumo de agua y limitar los alimentos procesados y azúcares.
- **Variedad:** Introducir nuevos alimentos de forma gradual para asegurar una ingesta variada de nutrientes.`

	generalGuide = `**Recomendaciones Generales:**
- Consultar a un pediatra para una evaluación completa.
- Asegurar una dieta balanceada y variada.`
)

// Guide returns the static markdown guide for a classification status.
func Guide(status growth.Status) string {
	switch status {
	case growth.StatusChronicRisk:
		return chronicRiskGuide
	case growth.StatusNormal:
		return normalGuide
	default:
		return generalGuide
	}
}

// Summary is the one-line verdict shown above the guide.
func Summary(status growth.Status) string {
	switch status {
	case growth.StatusChronicRisk:
		return "El niño o niña presenta **desnutrición crónica**. Su estatura está significativamente por debajo de lo normal para su edad."
	case growth.StatusAboveAverage:
		return "El niño o niña presenta un crecimiento superior al promedio para su edad. Se recomienda seguimiento médico."
	case growth.StatusNormal:
		return "El niño o niña presenta un crecimiento normal para su edad. Sigue así."
	default:
		return "Edad fuera del rango de análisis. No hay datos de referencia para esta edad."
	}
}
