package principal_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/taskward/taskward/pkg/principal"
)

func TestPrincipalIsZero(t *testing.T) {
	a := assert.New(t)

	a.True(principal.Principal{}.IsZero())
	a.True(principal.Principal{IsSuperuser: true}.IsZero())
	a.False(principal.Principal{ID: uuid.New()}.IsZero())
}

func TestPrincipalContextRoundtrip(t *testing.T) {
	a := assert.New(t)

	p := principal.Principal{ID: uuid.New(), IsSuperuser: true}

	ctx := principal.NewContext(context.Background(), p)

	got, err := principal.FromContext(ctx)
	a.NoError(err)
	a.Equal(p, got)

	_, err = principal.FromContext(context.Background())
	a.Equal(principal.ErrNoContextualValue, err)
}
