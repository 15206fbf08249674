package optin

// Kind classifies a failed opt-in attempt.
type Kind int

const (
	// KindInvalidLink is terminal: the link could not be loaded.
	KindInvalidLink Kind = iota + 1
	// KindValidation means a required form field is empty. Field is set.
	KindValidation
	// KindUnsupported means the browser has no notification API.
	KindUnsupported
	// KindPermissionDenied means notifications were not granted.
	KindPermissionDenied
	// KindIOSSubscription is an iOS push subscription failure.
	KindIOSSubscription
	// KindIOSUnsupported means an iOS browser without the push API.
	KindIOSUnsupported
	// KindSubmit means the backend rejected or never received the opt-in.
	KindSubmit
)

// User facing messages.
const (
	MsgInvalidLink        = "Link inválido ou expirado"
	MsgNameRequired       = "Por favor, informe seu nome"
	MsgEmailRequired      = "Por favor, informe seu email"
	MsgPhoneRequired      = "Por favor, informe seu telefone"
	MsgUnsupported        = "Seu navegador não suporta notificações push. Por favor, use Chrome, Firefox ou Safari atualizado."
	MsgPermissionRequired = "Você precisa permitir notificações para continuar"
	MsgPermissionBlocked  = "Permissão de notificação negada. Por favor, habilite nas configurações do navegador."
	MsgIOSSubscription    = "Erro ao criar inscrição no iOS. Certifique-se de estar usando Safari no iOS 16.4+. Se o problema persistir, tente limpar o cache ou adicionar este site à tela inicial."
	MsgIOSUnsupported     = "Seu navegador iOS não suporta notificações push. Use Safari no iOS 16.4 ou superior. Se já estiver usando Safari, verifique se o iOS está atualizado."
	MsgSubmitFailed       = "Erro ao se inscrever. Por favor, tente novamente."
)

// Error is returned by the negotiator; Message is meant for the user.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Terminal reports whether retrying the same link cannot succeed.
func (e *Error) Terminal() bool {
	return e.Kind == KindInvalidLink
}
