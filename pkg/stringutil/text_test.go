package stringutil_test

import (
	"testing"

	"github.com/labnotify/labnotify/pkg/stringutil"
	"github.com/stretchr/testify/require"
)

func TestSanitizeText(t *testing.T) {
	require.Equal(t, "hello", stringutil.SanitizeText("<script>alert(1)</script>hello"))
	require.Equal(t, "acetone restock", stringutil.SanitizeText("<b>acetone</b> restock"))
}

func TestSecureRandomString(t *testing.T) {
	require.Len(t, stringutil.SecureRandomString(24), 24)
	require.NotEqual(t, stringutil.SecureRandomString(24), stringutil.SecureRandomString(24))
}
