// Package locale resolves the request language and translates the org
// chart API messages.
//
// Supported locales are en, de, fr, es and it; de is the default.
package locale

import (
	"net/http"
	"strings"

	"github.com/iota-uz/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// Default is used when a request names no supported locale.
const Default = "de"

// Supported lists the locales in matcher priority order.
var Supported = []string{"de", "en", "fr", "es", "it"}

var (
	supportedTags = func() []language.Tag {
		tags := make([]language.Tag, len(Supported))
		for i, s := range Supported {
			tags[i] = language.MustParse(s)
		}
		return tags
	}()
	matcher = language.NewMatcher(supportedTags)
)

// Match maps raw (a tag such as "en", "fr-CH" or an Accept-Language header)
// to a supported locale, or "" when nothing matches.
func Match(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(raw)
	if err != nil || len(tags) == 0 {
		return ""
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return ""
	}
	return Supported[idx]
}

// Resolve picks the locale for a request: the ?locale= query parameter,
// then Accept-Language, then def (or Default when def is not supported).
func Resolve(r *http.Request, def string) string {
	if l := Match(r.URL.Query().Get("locale")); l != "" {
		return l
	}
	if l := Match(r.Header.Get("Accept-Language")); l != "" {
		return l
	}
	if l := Match(def); l != "" {
		return l
	}
	return Default
}

// PagePath is the rendered chart page for a locale, used as a cache key.
func PagePath(loc string) string {
	return "/" + loc + "/organigram"
}

// Message ids.
const (
	MsgUnauthorized      = "OrgChart.Errors.Unauthorized"
	MsgForbidden         = "OrgChart.Errors.Forbidden"
	MsgInvalidPayload    = "OrgChart.Errors.InvalidPayload"
	MsgParentNotFound    = "OrgChart.Errors.ParentNotFound"
	MsgNotFound          = "OrgChart.Errors.NotFound"
	MsgCycleDetected     = "OrgChart.Errors.CycleDetected"
	MsgInvalidNodeType   = "OrgChart.Errors.InvalidNodeType"
	MsgAlreadyRegistered = "OrgChart.Errors.AlreadyRegistered"
	MsgMissingID         = "OrgChart.Errors.MissingID"
	MsgServerError       = "OrgChart.Errors.ServerError"
	MsgVirtualRoot       = "OrgChart.VirtualRoot"

	MsgFillAllFields      = "Auth.Errors.FillAllFields"
	MsgAccountExists      = "Auth.Errors.AccountExists"
	MsgInvalidCredentials = "Auth.Errors.InvalidCredentials"
	MsgTooManyAttempts    = "Auth.Errors.TooManyAttempts"
	MsgGenericError       = "Auth.Errors.Generic"
)

var catalog = map[string]map[string]string{
	"en": {
		MsgUnauthorized:       "Unauthorized",
		MsgForbidden:          "Forbidden",
		MsgInvalidPayload:     "Invalid payload",
		MsgParentNotFound:     "Parent not found",
		MsgNotFound:           "Not found",
		MsgCycleDetected:      "A node cannot be placed under itself or one of its descendants",
		MsgInvalidNodeType:    "Only person nodes can be deleted",
		MsgAlreadyRegistered:  "You are already on the chart",
		MsgMissingID:          "Missing id",
		MsgServerError:        "Server error",
		MsgVirtualRoot:        "Org Root",
		MsgFillAllFields:      "Please fill in all fields.",
		MsgAccountExists:      "Username or email already exists.",
		MsgInvalidCredentials: "Wrong login details.",
		MsgTooManyAttempts:    "Too many sign-in attempts. Please try again later.",
		MsgGenericError:       "Something went wrong.",
	},
	"de": {
		MsgUnauthorized:       "Nicht angemeldet",
		MsgForbidden:          "Keine Berechtigung",
		MsgInvalidPayload:     "Ungültige Eingabe",
		MsgParentNotFound:     "Übergeordneter Knoten nicht gefunden",
		MsgNotFound:           "Nicht gefunden",
		MsgCycleDetected:      "Ein Knoten kann nicht unter sich selbst oder einem Nachfahren platziert werden",
		MsgInvalidNodeType:    "Nur Personenknoten können gelöscht werden",
		MsgAlreadyRegistered:  "Sie sind bereits im Organigramm",
		MsgMissingID:          "ID fehlt",
		MsgServerError:        "Serverfehler",
		MsgVirtualRoot:        "Organisation",
		MsgFillAllFields:      "Bitte fülle alle Felder aus.",
		MsgAccountExists:      "Benutzername oder E-Mail existiert bereits.",
		MsgInvalidCredentials: "Falsche Anmeldedaten.",
		MsgTooManyAttempts:    "Zu viele Anmeldeversuche. Bitte später erneut versuchen.",
		MsgGenericError:       "Ein Fehler ist aufgetreten.",
	},
	"fr": {
		MsgUnauthorized:       "Non authentifié",
		MsgForbidden:          "Accès refusé",
		MsgInvalidPayload:     "Données invalides",
		MsgParentNotFound:     "Nœud parent introuvable",
		MsgNotFound:           "Introuvable",
		MsgCycleDetected:      "Un nœud ne peut pas être placé sous lui-même ou l'un de ses descendants",
		MsgInvalidNodeType:    "Seuls les nœuds de personne peuvent être supprimés",
		MsgAlreadyRegistered:  "Vous figurez déjà dans l'organigramme",
		MsgMissingID:          "Identifiant manquant",
		MsgServerError:        "Erreur serveur",
		MsgVirtualRoot:        "Organisation",
		MsgFillAllFields:      "Veuillez remplir tous les champs.",
		MsgAccountExists:      "Le nom d'utilisateur ou l'e-mail existe déjà.",
		MsgInvalidCredentials: "Identifiants incorrects.",
		MsgTooManyAttempts:    "Trop de tentatives de connexion. Veuillez réessayer plus tard.",
		MsgGenericError:       "Une erreur est survenue.",
	},
	"es": {
		MsgUnauthorized:       "No autenticado",
		MsgForbidden:          "Prohibido",
		MsgInvalidPayload:     "Datos no válidos",
		MsgParentNotFound:     "Nodo padre no encontrado",
		MsgNotFound:           "No encontrado",
		MsgCycleDetected:      "Un nodo no puede colocarse bajo sí mismo ni bajo uno de sus descendientes",
		MsgInvalidNodeType:    "Solo se pueden eliminar nodos de persona",
		MsgAlreadyRegistered:  "Ya figura en el organigrama",
		MsgMissingID:          "Falta el id",
		MsgServerError:        "Error del servidor",
		MsgVirtualRoot:        "Organización",
		MsgFillAllFields:      "Por favor, rellena todos los campos.",
		MsgAccountExists:      "El nombre de usuario o el correo ya existe.",
		MsgInvalidCredentials: "Datos de acceso incorrectos.",
		MsgTooManyAttempts:    "Demasiados intentos de inicio de sesión. Inténtalo más tarde.",
		MsgGenericError:       "Se ha producido un error.",
	},
	"it": {
		MsgUnauthorized:       "Non autenticato",
		MsgForbidden:          "Accesso negato",
		MsgInvalidPayload:     "Dati non validi",
		MsgParentNotFound:     "Nodo padre non trovato",
		MsgNotFound:           "Non trovato",
		MsgCycleDetected:      "Un nodo non può essere posto sotto sé stesso o un suo discendente",
		MsgInvalidNodeType:    "Solo i nodi persona possono essere eliminati",
		MsgAlreadyRegistered:  "Sei già presente nell'organigramma",
		MsgMissingID:          "Id mancante",
		MsgServerError:        "Errore del server",
		MsgVirtualRoot:        "Organizzazione",
		MsgFillAllFields:      "Compila tutti i campi.",
		MsgAccountExists:      "Nome utente o e-mail già esistente.",
		MsgInvalidCredentials: "Dati di accesso errati.",
		MsgTooManyAttempts:    "Troppi tentativi di accesso. Riprova più tardi.",
		MsgGenericError:       "Si è verificato un errore.",
	},
}

// Translator localizes message ids.
type Translator struct {
	bundle *i18n.Bundle
}

// NewTranslator builds a Translator with the built-in catalog loaded.
func NewTranslator() *Translator {
	bundle := i18n.NewBundle(language.English)
	for loc, msgs := range catalog {
		tag := language.MustParse(loc)
		list := make([]*i18n.Message, 0, len(msgs))
		for id, other := range msgs {
			list = append(list, &i18n.Message{ID: id, Other: other})
		}
		_ = bundle.AddMessages(tag, list...)
	}
	return &Translator{bundle: bundle}
}

// T returns the message for id in loc, falling back to English and then
// to the id itself.
func (t *Translator) T(loc, id string) string {
	l := i18n.NewLocalizer(t.bundle, loc, "en")
	s, err := l.Localize(&i18n.LocalizeConfig{MessageID: id})
	if err != nil || s == "" {
		return id
	}
	return s
}
