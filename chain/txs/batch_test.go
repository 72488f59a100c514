package txs

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MetalBlockchain/accountlib/chain/coins"
	"github.com/MetalBlockchain/accountlib/chain/extrinsic"
	"github.com/MetalBlockchain/accountlib/chain/material"
	"github.com/MetalBlockchain/accountlib/chain/txerrors"
	"github.com/MetalBlockchain/accountlib/status"
)

// innerCalls returns the encoded calls of an unnominate and a transfer.
func innerCalls(t *testing.T) (string, string) {
	require := require.New(t)

	unnominate := NewUnnominateBuilder(coins.TDOT, nil)
	configure(t, unnominate)
	tx, err := unnominate.Build(testContext(t))
	require.NoError(err)
	chill, err := tx.CallHex()
	require.NoError(err)

	transfer := NewTransferBuilder(coins.TDOT, nil)
	configure(t, transfer)
	require.NoError(transfer.To(receiver.address))
	require.NoError(transfer.Amount("90034235235322"))
	tx, err = transfer.Build(testContext(t))
	require.NoError(err)
	send, err := tx.CallHex()
	require.NoError(err)
	return chill, send
}

func TestBatchCallsValidation(t *testing.T) {
	b := NewBatchBuilder(coins.TDOT, nil)

	err := b.Calls([]BatchCall{RawCall("0x1234")})
	require.ErrorIs(t, err, txerrors.ErrBuildTransaction)
	require.ErrorIs(t, err, extrinsic.ErrMalformed)
	assert.Contains(t, err.Error(), "invalid unsigned transaction")

	err = b.Calls([]BatchCall{RawCall("nothex")})
	assert.ErrorIs(t, err, txerrors.ErrBuildTransaction)
	assert.ErrorIs(t, err, extrinsic.ErrMalformed)

	err = b.Calls([]BatchCall{ObjectCall("0x0606", nil)})
	require.ErrorIs(t, err, txerrors.ErrBuildTransaction)
	assert.Contains(t, err.Error(), "call missing either of the following parameters: args, callIndex")

	err = b.Calls([]BatchCall{ObjectCall("", json.RawMessage(`{}`))})
	assert.ErrorIs(t, err, txerrors.ErrBuildTransaction)

	require.Empty(t, b.args.Calls)
}

func TestBatchBareObject(t *testing.T) {
	b := NewBatchBuilder(coins.TDOT, nil)
	configure(t, b)

	// a call object with neither field passes the setter but not the profile
	require.NoError(t, b.Calls([]BatchCall{{Object: &CallObject{}}}))
	_, err := b.Build(testContext(t))
	require.ErrorIs(t, err, txerrors.ErrInvalidTransaction)
	assert.Contains(t, err.Error(), "is required")
}

func TestBatchEmpty(t *testing.T) {
	b := NewBatchBuilder(coins.TDOT, nil)
	configure(t, b)

	_, err := b.Build(testContext(t))
	assert.ErrorIs(t, err, txerrors.ErrInvalidTransaction)
}

func TestBatchRoundTrip(t *testing.T) {
	require := require.New(t)
	chill, send := innerCalls(t)

	b := NewBatchBuilder(coins.TDOT, nil)
	configure(t, b)
	require.NoError(b.Calls([]BatchCall{RawCall(chill), RawCall(send)}))
	require.NoError(b.Sign(sender.secretKey))
	tx, err := b.Build(testContext(t))
	require.NoError(err)
	require.Equal(status.FullySigned, tx.Status())

	j, err := tx.ToJSON()
	require.NoError(err)
	requireBaseJSON(t, j)
	require.Equal(material.Batch, j.Method)
	require.Equal([]BatchCall{RawCall(chill), RawCall(send)}, j.Calls)

	// the transfer inside the batch is reported as a movement
	require.Equal([]Entry{{Address: sender.address, Value: "90034235235322", Coin: "tdot"}}, tx.Inputs())
	require.Equal([]Entry{{Address: receiver.address, Value: "90034235235322", Coin: "tdot"}}, tx.Outputs())

	raw, err := tx.ToBroadcastFormat()
	require.NoError(err)
	decoded, err := westendFactory(t).Decode(testContext(t), raw)
	require.NoError(err)
	require.True(decoded.Signed)
	require.Equal(sender.address, decoded.Sender)
	require.Equal(BatchVariant, decoded.Variant)
	require.Equal(material.Batch, decoded.Method)
	require.Equal(tx.Args(), decoded.Args)
}

func TestBatchAll(t *testing.T) {
	require := require.New(t)
	chill, _ := innerCalls(t)

	b := NewBatchBuilder(coins.TDOT, nil)
	configure(t, b)
	b.All(true)
	require.NoError(b.Calls([]BatchCall{RawCall(chill)}))
	raw := buildRaw(t, b)

	rebuilt, err := westendFactory(t).From(testContext(t), raw)
	require.NoError(err)
	batch, ok := rebuilt.(*BatchBuilder)
	require.True(ok)
	require.True(batch.args.All)

	tx, err := b.Build(testContext(t))
	require.NoError(err)
	j, err := tx.ToJSON()
	require.NoError(err)
	require.Equal(material.BatchAll, j.Method)
}

func TestBatchObjectCalls(t *testing.T) {
	require := require.New(t)
	chill, send := innerCalls(t)

	transfer, err := json.Marshal(TransferArgs{Dest: receiver.address, Value: "90034235235322"})
	require.NoError(err)
	proxy, err := json.Marshal(AddressInitializationArgs{ProxyType: ProxyAny, Delay: "0"})
	require.NoError(err)

	b := NewBatchBuilder(coins.TDOT, nil)
	configure(t, b)
	require.NoError(b.Calls([]BatchCall{
		ObjectCall("0x0606", json.RawMessage(`{}`)),
		ObjectCall("0x0403", transfer),
		ObjectCall("0x1e04", proxy),
	}))
	tx, err := b.Build(testContext(t))
	require.NoError(err)

	// the snapshot carries the calls in their encoded form
	calls := tx.Args().(*BatchArgs).Calls
	require.Len(calls, 3)
	require.Equal(RawCall(chill), calls[0])
	require.Equal(RawCall(send), calls[1])
	require.True(strings.HasPrefix(calls[2].Raw, "0x1e04"))
	require.Len(tx.Outputs(), 1)
}

func TestBatchObjectInvalidArgs(t *testing.T) {
	b := NewBatchBuilder(coins.TDOT, nil)
	configure(t, b)
	require.NoError(t, b.Calls([]BatchCall{
		ObjectCall("0x0403", json.RawMessage(`{"dest":"asd","value":"1"}`)),
	}))

	_, err := b.Build(testContext(t))
	assert.ErrorIs(t, err, txerrors.ErrInvalidTransaction)
}

func TestBatchCallJSON(t *testing.T) {
	require := require.New(t)

	var calls []BatchCall
	require.NoError(json.Unmarshal([]byte(`["0x060600", {"callIndex":"0x0606","args":{}}]`), &calls))
	require.Equal(RawCall("0x060600"), calls[0])
	require.Equal("0x0606", calls[1].Object.CallIndex)
	require.JSONEq(`{}`, string(calls[1].Object.Args))

	b, err := json.Marshal(calls)
	require.NoError(err)
	require.JSONEq(`["0x060600", {"callIndex":"0x0606","args":{}}]`, string(b))

	require.Error(json.Unmarshal([]byte(`[1]`), &calls))
}

func TestDecodeCallObject(t *testing.T) {
	require := require.New(t)
	_, send := innerCalls(t)

	registry, err := material.Westend.Registry()
	require.NoError(err)
	obj, err := DecodeCallObject(registry, coins.TDOT.SS58Prefix, send)
	require.NoError(err)
	require.Equal("0x0403", obj.CallIndex)
	require.JSONEq(`{"dest":"`+receiver.address+`","value":"90034235235322"}`, string(obj.Args))

	_, err = DecodeCallObject(registry, coins.TDOT.SS58Prefix, "0xffff00")
	require.Error(err)
}

func TestBatchListCountExceedsInput(t *testing.T) {
	require := require.New(t)

	_, err := decodeList([]byte{0xff, 0xff, 0xff, 0xff})
	require.ErrorIs(err, errInvalidArg)
	_, err = decodeList([]byte{0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00, 0x00})
	require.ErrorIs(err, errInvalidArg)

	chill, _ := innerCalls(t)
	original := NewBatchBuilder(coins.TDOT, nil)
	configure(t, original)
	require.NoError(original.Calls([]BatchCall{RawCall(chill)}))
	ext, err := extrinsic.ParseHex(buildRaw(t, original))
	require.NoError(err)
	ext.Call.Args[0] = []byte{0xff, 0xff, 0xff, 0xff}
	raw, err := ext.Hex()
	require.NoError(err)

	b := NewBatchBuilder(coins.TDOT, nil)
	require.ErrorIs(b.ValidateRawTransaction(raw), txerrors.ErrInvalidTransaction)
	require.ErrorIs(b.From(raw), txerrors.ErrInvalidTransaction)
}
