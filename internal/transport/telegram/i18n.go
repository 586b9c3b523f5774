package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// translations is the small per language string table of the bot.
// Anything not found here falls back to English.
var translations = map[string]map[string]string{
	"en": {
		"welcome":      "Welcome to the pharmacy bot!",
		"inventory":    "Available medicines:",
		"no_medicines": "No medicines found in the inventory",
	},
	"es": {
		"welcome":      "¡Bienvenido al bot de farmacia!",
		"inventory":    "Medicamentos disponibles:",
		"no_medicines": "No se encontraron medicamentos en el inventario",
	},
}

func translate(lang, key string) string {
	if m, ok := translations[lang]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}

	if v, ok := translations["en"][key]; ok {
		return v
	}

	return key
}

func langOf(msg *tgbotapi.Message) string {
	if msg.From != nil && msg.From.LanguageCode != "" {
		return msg.From.LanguageCode
	}

	return "en"
}
