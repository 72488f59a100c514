package material_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MetalBlockchain/accountlib/chain/coins"
	"github.com/MetalBlockchain/accountlib/chain/material"
	"github.com/MetalBlockchain/accountlib/chain/material/materialmock"
)

var errUnavailable = errors.New("node unavailable")

func TestRegistry(t *testing.T) {
	require := require.New(t)

	registry, err := material.Westend.Registry()
	require.NoError(err)

	call, err := registry.Lookup(material.TransferKeepAlive)
	require.NoError(err)
	require.Equal(material.CallIndex{4, 3}, call.Index)
	require.Equal("0x0403", call.Index.String())

	byIndex, err := registry.LookupIndex(material.CallIndex{16, 0})
	require.NoError(err)
	require.Equal(material.Batch, byIndex.Method())

	_, err = registry.Lookup("democracy.vote")
	require.ErrorIs(err, material.ErrUnknownCall)

	require.Equal(material.WestendCalls, registry.Calls())
}

func TestMetadataRoundTrip(t *testing.T) {
	metadata, err := material.EncodeMetadata(material.PolkadotCalls)
	require.NoError(t, err)

	registry, err := material.ParseMetadata(metadata)
	require.NoError(t, err)
	assert.Equal(t, material.PolkadotCalls, registry.Calls())
}

func TestInvalidMetadata(t *testing.T) {
	for _, metadata := range []string{"", "0x", "zz", "0x00000001", material.Westend.Metadata + "00"} {
		_, err := material.ParseMetadata(metadata)
		assert.ErrorIs(t, err, material.ErrInvalidMetadata, metadata)
	}

	_, err := material.NewRegistry([]material.Call{
		{Pallet: "a", Name: "b", Index: material.CallIndex{1, 1}},
		{Pallet: "a", Name: "c", Index: material.CallIndex{1, 1}},
	})
	assert.ErrorIs(t, err, material.ErrDuplicateCall)
}

func TestParseCallIndex(t *testing.T) {
	index, err := material.ParseCallIndex("0x1002")
	require.NoError(t, err)
	assert.Equal(t, material.CallIndex{16, 2}, index)

	_, err = material.ParseCallIndex("0x10")
	assert.ErrorIs(t, err, material.ErrUnknownCall)
}

func TestStaticProvider(t *testing.T) {
	provider := material.NewStaticProvider(material.Defaults())

	m, err := provider.Get(context.Background(), coins.TDOT)
	require.NoError(t, err)
	assert.Equal(t, material.Westend, *m)

	_, err = provider.Get(context.Background(), coins.BTC)
	assert.ErrorIs(t, err, material.ErrNotAccountChain)

	_, err = material.NewStaticProvider(nil).Get(context.Background(), coins.DOT)
	assert.ErrorIs(t, err, material.ErrMissingMaterial)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = provider.Get(ctx, coins.TDOT)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCachedProvider(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	westend := material.Westend
	mock := materialmock.NewMockProvider(ctrl)
	mock.EXPECT().Get(gomock.Any(), coins.TDOT).Return(&westend, nil).Times(1)

	provider := material.NewCachedProvider(mock, 4)
	for range 3 {
		m, err := provider.Get(context.Background(), coins.TDOT)
		require.NoError(t, err)
		assert.Equal(t, material.Westend, *m)
	}

	mock.EXPECT().Get(gomock.Any(), coins.TDOT).Return(&westend, nil).Times(1)
	provider.Flush()
	_, err := provider.Get(context.Background(), coins.TDOT)
	require.NoError(t, err)
}

func TestRetryingProvider(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	westend := material.Westend
	mock := materialmock.NewMockProvider(ctrl)
	gomock.InOrder(
		mock.EXPECT().Get(gomock.Any(), coins.TDOT).Return(nil, errUnavailable).Times(2),
		mock.EXPECT().Get(gomock.Any(), coins.TDOT).Return(&westend, nil),
	)

	provider := material.NewRetryingProvider(mock, 3, time.Millisecond)
	m, err := provider.Get(context.Background(), coins.TDOT)
	require.NoError(t, err)
	assert.Equal(t, material.Westend, *m)
}

func TestRetryingProviderPermanent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mock := materialmock.NewMockProvider(ctrl)
	mock.EXPECT().Get(gomock.Any(), coins.DOT).Return(nil, material.ErrMissingMaterial).Times(1)

	provider := material.NewRetryingProvider(mock, 5, time.Millisecond)
	_, err := provider.Get(context.Background(), coins.DOT)
	assert.ErrorIs(t, err, material.ErrMissingMaterial)
}

func TestRetryingProviderGivesUp(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mock := materialmock.NewMockProvider(ctrl)
	mock.EXPECT().Get(gomock.Any(), coins.DOT).Return(nil, errUnavailable).Times(3)

	provider := material.NewRetryingProvider(mock, 2, time.Millisecond)
	_, err := provider.Get(context.Background(), coins.DOT)
	assert.ErrorIs(t, err, errUnavailable)
}
