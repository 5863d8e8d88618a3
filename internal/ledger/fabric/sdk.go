package fabric

import (
	"time"

	"github.com/hyperledger/fabric-sdk-go/pkg/client/channel"
	"github.com/hyperledger/fabric-sdk-go/pkg/client/ledger"
	"github.com/hyperledger/fabric-sdk-go/pkg/core/config"
	"github.com/hyperledger/fabric-sdk-go/pkg/fabsdk"

	dErrors "vaultledger/pkg/domain-errors"
)

// SDKConfig locates the network and the identity used to submit anchors.
type SDKConfig struct {
	ConfigPath  string
	ChannelID   string
	ChaincodeID string
	Org         string
	User        string
	Timeout     time.Duration
}

// Connect builds the SDK from its connection profile and returns a client
// bound to the configured channel. The returned close func releases the SDK.
func Connect(cfg SDKConfig) (*Client, func(), error) {
	sdk, err := fabsdk.New(config.FromFile(cfg.ConfigPath))
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to initialise fabric sdk")
	}

	ctx := sdk.ChannelContext(cfg.ChannelID, fabsdk.WithUser(cfg.User), fabsdk.WithOrg(cfg.Org))
	cc, err := channel.New(ctx)
	if err != nil {
		sdk.Close()
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create fabric channel client")
	}
	lc, err := ledger.New(ctx)
	if err != nil {
		sdk.Close()
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create fabric ledger client")
	}
	return New(cc, lc, cfg.ChaincodeID, cfg.Timeout), sdk.Close, nil
}
