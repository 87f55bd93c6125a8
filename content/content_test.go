package content_test

import (
	"errors"
	"fmt"
	"testing"

	"docsearch-gateway/content"

	"github.com/stretchr/testify/assert"
)

func TestErrorf(t *testing.T) {
	t.Parallel()

	err := content.Errorf(content.ENOTFOUND, "article %q not found", "intro")

	assert.Equal(t, content.ENOTFOUND, content.ErrorCode(err))
	assert.Equal(t, "article \"intro\" not found", content.ErrorMessage(err))
}

func TestErrorCode_WrappedError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("lookup: %w", content.Errorf(content.EINVALID, "bad slug"))

	assert.Equal(t, content.EINVALID, content.ErrorCode(err))
	assert.Equal(t, "bad slug", content.ErrorMessage(err))
}

func TestErrorCode_ForeignErrorIsInternal(t *testing.T) {
	t.Parallel()

	err := errors.New("disk on fire")

	assert.Equal(t, content.EINTERNAL, content.ErrorCode(err))
	assert.Equal(t, "Internal error.", content.ErrorMessage(err))
}

func TestErrorCode_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, content.ErrorCode(nil))
	assert.Empty(t, content.ErrorMessage(nil))
}

func TestArticle_Validate(t *testing.T) {
	t.Parallel()

	err := (&content.Article{Title: "Intro"}).Validate()
	assert.Equal(t, content.EINVALID, content.ErrorCode(err))

	err = (&content.Article{Slug: "intro"}).Validate()
	assert.Equal(t, content.EINVALID, content.ErrorCode(err))

	assert.NoError(t, (&content.Article{Slug: "intro", Title: "Intro"}).Validate())
}
