package analyzer

import (
	"github.com/maxedonia/ela-mate-web/pkg/models"
)

// Summary is an alias to the shared models.Summary so transports can serialize it directly
type Summary = models.Summary
