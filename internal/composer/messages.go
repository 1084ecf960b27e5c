package composer

import "errors"

// Messages shown to the waiter
const (
	MsgSubmitted      = "Pedido enviado com sucesso!"
	MsgSubmitFailed   = "Erro ao enviar pedido. Tente novamente."
	MsgIncompleteForm = "Por favor, selecione uma mesa, digite o nome do cliente e adicione itens ao pedido"
)

// UserMessage turns a Submit result into the message shown to the user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return MsgSubmitted
	case errors.Is(err, ErrNoTable):
		return "Selecione uma mesa. " + MsgIncompleteForm
	case errors.Is(err, ErrNoStaffName):
		return "Digite o nome do cliente. " + MsgIncompleteForm
	case errors.Is(err, ErrEmptyCart):
		return "Adicione itens ao pedido. " + MsgIncompleteForm
	case errors.Is(err, ErrSubmitInProgress):
		return "Enviando..."
	case errors.Is(err, ErrTableUnavailable):
		return "Mesa indisponível"
	default:
		return MsgSubmitFailed
	}
}
