package backend

import "fmt"

// SystemPrompt keeps replies short, unformatted and in Czech.
const SystemPrompt = "Jsi hlasový AI asistent Ninuška na Raspberry Pi. " +
	"Odpovídej VŽDY česky. " +
	"KRITICKÉ: Odpovědi musí být co nejkratší, maximálně 1-2 věty. " +
	"Žádné formátování, žádný markdown, žádné backticky. " +
	"Pokud uživatel chce provést příkaz, proveď ho a vrať pouze výsledek."

// SummaryPrompt asks for a one-sentence Czech summary of text.
func SummaryPrompt(text string) string {
	return fmt.Sprintf("Shrň následující text do jedné krátké české věty:\n\n%s", text)
}

func imagePrompt(utterance, path string) string {
	return fmt.Sprintf("%s\n\nAnalyzuj obrázek: %s", utterance, path)
}
