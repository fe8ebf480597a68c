// Package i18n translates user-facing strings. Message keys are the English
// source strings, so an unknown language or missing entry falls back to
// English without extra bookkeeping.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	MsgReportButton  = "Report broken video"
	MsgLeaveEmpty    = "Leave this empty"
	MsgMailSubject   = "Broken video on %s"
	MsgMailBody      = "There is a broken video on:\n <%s>"
	MsgReportSuccess = "Thank you! We will take a look."
	MsgReportFailure = "Sorry, we could not send the report. May we ask you to use the contact page instead?"
)

var translations = map[language.Tag]map[string]string{
	language.German: {
		MsgReportButton:  "Defektes Video melden",
		MsgLeaveEmpty:    "Bitte leer lassen",
		MsgMailSubject:   "Defektes Video auf %s",
		MsgMailBody:      "Ein defektes Video befindet sich auf:\n <%s>",
		MsgReportSuccess: "Danke! Wir sehen uns das an.",
		MsgReportFailure: "Leider konnten wir die Meldung nicht senden. Dürfen wir dich bitten, stattdessen die Kontaktseite zu nutzen?",
	},
	language.French: {
		MsgReportButton:  "Signaler une vidéo défectueuse",
		MsgLeaveEmpty:    "Laisser ce champ vide",
		MsgMailSubject:   "Vidéo défectueuse sur %s",
		MsgMailBody:      "Une vidéo défectueuse se trouve sur :\n <%s>",
		MsgReportSuccess: "Merci ! Nous allons vérifier.",
		MsgReportFailure: "Désolé, nous n'avons pas pu envoyer le signalement. Pourriez-vous utiliser la page de contact à la place ?",
	},
	language.Spanish: {
		MsgReportButton:  "Informar de un vídeo roto",
		MsgLeaveEmpty:    "Deja esto vacío",
		MsgMailSubject:   "Vídeo roto en %s",
		MsgMailBody:      "Hay un vídeo roto en:\n <%s>",
		MsgReportSuccess: "¡Gracias! Le echaremos un vistazo.",
		MsgReportFailure: "Lo sentimos, no pudimos enviar el aviso. ¿Podrías usar la página de contacto en su lugar?",
	},
}

type Translator struct {
	catalog   catalog.Catalog
	matcher   language.Matcher
	supported []language.Tag
}

func New() (*Translator, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	supported := []language.Tag{language.English}
	for tag, msgs := range translations {
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				return nil, err
			}
		}
		supported = append(supported, tag)
	}
	return &Translator{
		catalog:   b,
		matcher:   language.NewMatcher(supported),
		supported: supported,
	}, nil
}

// Match picks the best supported language for an Accept-Language header.
func (t *Translator) Match(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return language.English
	}
	_, idx, conf := t.matcher.Match(tags...)
	if conf == language.No {
		return language.English
	}
	return t.supported[idx]
}

// T formats the translation of key for the visitor's Accept-Language.
func (t *Translator) T(acceptLanguage, key string, args ...any) string {
	p := message.NewPrinter(t.Match(acceptLanguage), message.Catalog(t.catalog))
	return p.Sprintf(key, args...)
}
