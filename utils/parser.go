package utils

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"

	"github.com/orkipay/gateway/types"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// PaymentInstruction is the wire form of a payment. Exactly one of Native or
// Token selects the settlement leg.
type PaymentInstruction struct {
	Amount        uint64 `json:"amount" validate:"required,gt=0"`
	PaymentID     uint64 `json:"paymentId"`
	MerchantOwner string `json:"merchantOwner" validate:"required,eth_addr"`
	MerchantName  string `json:"merchantName" validate:"required,max=32"`

	Native *NativeLeg `json:"native,omitempty"`
	Token  *TokenLeg  `json:"token,omitempty"`
}

// NativeLeg names the destination wallets for a native-unit payment.
type NativeLeg struct {
	MerchantWallet string `json:"merchantWallet" validate:"required,eth_addr"`
	FeeWallet      string `json:"feeWallet" validate:"required,eth_addr"`
}

// TokenLeg names the mint and the three holding accounts for a token payment.
type TokenLeg struct {
	Mint            string `json:"mint" validate:"required,eth_addr"`
	PayerAccount    string `json:"payerAccount" validate:"required,eth_addr"`
	MerchantAccount string `json:"merchantAccount" validate:"required,eth_addr"`
	FeeAccount      string `json:"feeAccount" validate:"required,eth_addr"`
}

// ParsePaymentInstruction parses and validates a wire-form payment and builds
// the typed request the settlement engine consumes.
func ParsePaymentInstruction(data []byte) (*types.PaymentRequest, error) {
	var instr PaymentInstruction

	if err := json.Unmarshal(data, &instr); err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "failed to parse payment instruction: %v", err)
	}

	if err := validate.Struct(&instr); err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "validation failed: %v", err)
	}

	req := &types.PaymentRequest{
		Amount:        instr.Amount,
		PaymentID:     instr.PaymentID,
		MerchantOwner: common.HexToAddress(instr.MerchantOwner),
		MerchantName:  instr.MerchantName,
	}

	switch {
	case instr.Native != nil && instr.Token != nil:
		return nil, types.NewError(types.ErrInvalidRequest, "payment instruction names both native and token legs")
	case instr.Native != nil:
		req.Asset = &types.NativeContext{
			MerchantWallet: common.HexToAddress(instr.Native.MerchantWallet),
			FeeWallet:      common.HexToAddress(instr.Native.FeeWallet),
		}
	case instr.Token != nil:
		req.Asset = &types.TokenContext{
			Mint:            common.HexToAddress(instr.Token.Mint),
			PayerAccount:    common.HexToAddress(instr.Token.PayerAccount),
			MerchantAccount: common.HexToAddress(instr.Token.MerchantAccount),
			FeeAccount:      common.HexToAddress(instr.Token.FeeAccount),
		}
	default:
		return nil, types.NewError(types.ErrInvalidRequest, "payment instruction names no settlement leg")
	}

	return req, nil
}

// RegisterInstruction is the wire form of a merchant registration.
type RegisterInstruction struct {
	SettlementWallet string `json:"settlementWallet" validate:"required,eth_addr"`
	SettlementToken  string `json:"settlementToken" validate:"omitempty,eth_addr"`
	Name             string `json:"name" validate:"required,max=32"`
}

// ParseRegisterInstruction parses and validates a wire-form registration.
// An absent settlement token means the merchant accepts the native unit.
func ParseRegisterInstruction(data []byte) (*types.RegisterRequest, error) {
	var instr RegisterInstruction

	if err := json.Unmarshal(data, &instr); err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "failed to parse register instruction: %v", err)
	}

	if err := validate.Struct(&instr); err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "validation failed: %v", err)
	}

	req := &types.RegisterRequest{
		SettlementWallet: common.HexToAddress(instr.SettlementWallet),
		Name:             instr.Name,
	}
	if instr.SettlementToken != "" {
		req.SettlementToken = common.HexToAddress(instr.SettlementToken)
	}
	return req, nil
}

// UpdateInstruction is the wire form of a merchant update. Absent fields are
// left unchanged.
type UpdateInstruction struct {
	NewName          *string `json:"newName,omitempty" validate:"omitempty,max=32"`
	SettlementWallet *string `json:"settlementWallet,omitempty" validate:"omitempty,eth_addr"`
	SettlementToken  *string `json:"settlementToken,omitempty" validate:"omitempty,eth_addr"`
	SwapEnabled      *bool   `json:"swapEnabled,omitempty"`
}

// ParseUpdateInstruction parses and validates a wire-form merchant update.
func ParseUpdateInstruction(data []byte) (*types.UpdateRequest, error) {
	var instr UpdateInstruction

	if err := json.Unmarshal(data, &instr); err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "failed to parse update instruction: %v", err)
	}

	if err := validate.Struct(&instr); err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "validation failed: %v", err)
	}

	req := &types.UpdateRequest{
		NewName:     instr.NewName,
		SwapEnabled: instr.SwapEnabled,
	}
	if instr.SettlementWallet != nil {
		addr := common.HexToAddress(*instr.SettlementWallet)
		req.SettlementWallet = &addr
	}
	if instr.SettlementToken != nil {
		addr := common.HexToAddress(*instr.SettlementToken)
		req.SettlementToken = &addr
	}
	return req, nil
}

// SerializePayment converts a payment record to JSON.
func SerializePayment(p *types.Payment) ([]byte, error) {
	return json.Marshal(p)
}

// SerializeMerchant converts a merchant profile to JSON.
func SerializeMerchant(m *types.Merchant) ([]byte, error) {
	return json.Marshal(m)
}
