package eventbus

import (
	"fmt"

	"briar-gateway/internal/models"
)

func eventName(e models.Event) string {
	return fmt.Sprintf("%T", e)
}
