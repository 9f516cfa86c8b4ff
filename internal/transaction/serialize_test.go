package transaction

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"

	"icx-wallet/pkg/crypto_util"
)

func TestSerializeTransfer(t *testing.T) {
	params := map[string]interface{}{
		"version":   "0x3",
		"from":      "hxbe258ceb872e08851f1f59694dac2558708ece11",
		"to":        "hx5bfdb090f43a808005ffc27c25b213145e80b7cd",
		"value":     "0xde0b6b3a7640000",
		"stepLimit": "0x12345",
		"timestamp": "0x563a6cf330136",
		"nid":       "0x3f",
		"nonce":     "0x1",
		"signature": "ignored",
	}

	want := "icx_sendTransaction.from.hxbe258ceb872e08851f1f59694dac2558708ece11.nid.0x3f.nonce.0x1" +
		".stepLimit.0x12345.timestamp.0x563a6cf330136.to.hx5bfdb090f43a808005ffc27c25b213145e80b7cd" +
		".value.0xde0b6b3a7640000.version.0x3"
	got := Serialize(params)
	assert.Equal(t, want, got)
	assert.Equal(t, "66eb50d3ab7c22165354b5166ab591c835caad6efc7cb1968fc96ef29a635041",
		hex.EncodeToString(crypto_util.SHA3256([]byte(got))))
}

func TestSerializeNested(t *testing.T) {
	params := map[string]interface{}{
		"dataType": "call",
		"data": map[string]interface{}{
			"method": "setDelegation",
			"params": map[string]interface{}{
				"delegations": []interface{}{
					map[string]interface{}{"address": "hx1", "value": "0x1"},
					map[string]interface{}{"address": "hx2", "value": "0x2"},
				},
			},
		},
	}

	want := "icx_sendTransaction.data.{method.setDelegation.params.{delegations.[{address.hx1.value.0x1}.{address.hx2.value.0x2}]}}.dataType.call"
	assert.Equal(t, want, Serialize(params))
}

func TestSerializeEscapeAndNull(t *testing.T) {
	params := map[string]interface{}{
		"data": map[string]interface{}{
			"message": `a.b{c}[d]\e`,
			"empty":   nil,
		},
	}

	want := `icx_sendTransaction.data.{empty.\0.message.a\.b\{c\}\[d\]\\e}`
	assert.Equal(t, want, Serialize(params))
}
