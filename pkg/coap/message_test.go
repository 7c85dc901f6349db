package coap

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeClassification(t *testing.T) {
	tests := []struct {
		code     Code
		request  bool
		response bool
		empty    bool
		str      string
	}{
		{CodeEmpty, false, false, true, "0.00"},
		{GET, true, false, false, "GET"},
		{DELETE, true, false, false, "DELETE"},
		{Content, false, true, false, "2.05"},
		{NotFound, false, true, false, "4.04"},
		{GatewayTimeout, false, true, false, "5.04"},
		{NewCode(7, 1), false, false, false, "7.01"},
	}

	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			assert.Equal(t, tt.request, tt.code.IsRequest())
			assert.Equal(t, tt.response, tt.code.IsResponse())
			assert.Equal(t, tt.empty, tt.code.IsEmpty())
			assert.Equal(t, tt.str, tt.code.String())
		})
	}
}

func TestNewCode(t *testing.T) {
	assert.Equal(t, Content, NewCode(2, 5))
	assert.Equal(t, TooManyRequests, NewCode(4, 29))
	assert.Equal(t, uint8(4), TooManyRequests.Class())
	assert.Equal(t, uint8(29), TooManyRequests.Detail())
}

func TestToken(t *testing.T) {
	assert.True(t, Token(nil).IsEmpty())
	assert.True(t, Token{}.Equal(nil))
	assert.True(t, Token{0x01, 0x02}.Equal(Token{0x01, 0x02}))
	assert.False(t, Token{0x01}.Equal(Token{0x01, 0x02}))
	assert.Equal(t, "7b", Token{0x7b}.String())
}

func TestEmptyAckAndReset(t *testing.T) {
	remote := netip.MustParseAddrPort("127.0.0.1:5683")
	con := &Packet{Remote: remote, Type: Confirmable, Code: Content, MessageID: 77, Token: Token{1}}

	ack := NewEmptyAck(con)
	assert.Equal(t, Acknowledgement, ack.Type)
	assert.True(t, ack.IsEmpty())
	assert.Equal(t, uint16(77), ack.MessageID)
	assert.Equal(t, remote, ack.Remote)
	assert.True(t, ack.Token.IsEmpty())

	rst := NewReset(con)
	assert.Equal(t, Reset, rst.Type)
	assert.Equal(t, uint16(77), rst.MessageID)
}

func TestPacketString(t *testing.T) {
	p := &Packet{
		Remote:    netip.MustParseAddrPort("127.0.0.1:5683"),
		Type:      Confirmable,
		Code:      GET,
		MessageID: 12,
		Token:     Token{0xab},
	}
	assert.Equal(t, "CON GET MID:12 Token:ab 127.0.0.1:5683", p.String())

	p.Token = nil
	assert.Equal(t, "CON GET MID:12 127.0.0.1:5683", p.String())
}
