package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIPMatcher(t *testing.T) {
	m := NewIPMatcher([]string{"127.0.0.1/32", " 10.0.0.0/8 ", "::1", "garbage", ""})

	assert.False(t, m.IsEmpty())
	assert.True(t, m.Allow("127.0.0.1"))
	assert.True(t, m.Allow("10.20.30.40"))
	assert.True(t, m.Allow("::ffff:10.0.0.1"))
	assert.True(t, m.Allow("::1"))
	assert.False(t, m.Allow("192.168.1.1"))
	assert.False(t, m.Allow("not-an-ip"))

	assert.True(t, NewIPMatcher(nil).IsEmpty())
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.1:5555"
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	assert.Equal(t, "192.0.2.1", ClientIP(r, false))
	assert.Equal(t, "203.0.113.9", ClientIP(r, true))

	r.Header.Del("X-Forwarded-For")
	r.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", ClientIP(r, true))
}

func TestParseHostNoPort(t *testing.T) {
	assert.Equal(t, "::1", ParseHostNoPort("[::1]:80"))
	assert.Equal(t, "::1", ParseHostNoPort("[::1]"))
	assert.Equal(t, "1.2.3.4", ParseHostNoPort("1.2.3.4"))
	assert.Equal(t, "", ParseHostNoPort(""))
}
