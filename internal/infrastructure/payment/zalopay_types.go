package payment

// zalopayCreateResponse is the response body from the create-order API
type zalopayCreateResponse struct {
	ReturnCode       int    `json:"return_code"`
	ReturnMessage    string `json:"return_message"`
	SubReturnCode    int    `json:"sub_return_code"`
	SubReturnMessage string `json:"sub_return_message"`
	OrderURL         string `json:"order_url"`
	ZpTransToken     string `json:"zp_trans_token"`
}

// zalopayCallbackEnvelope wraps the callback: data is a JSON string signed
// with key2 and mac is its HMAC-SHA256
type zalopayCallbackEnvelope struct {
	Data string `json:"data"`
	Mac  string `json:"mac"`
	Type int    `json:"type"`
}

// zalopayCallbackData is the decoded data field of a callback
type zalopayCallbackData struct {
	AppID       int    `json:"app_id"`
	AppTransID  string `json:"app_trans_id"`
	AppUser     string `json:"app_user"`
	AppTime     int64  `json:"app_time"`
	Amount      int64  `json:"amount"`
	EmbedData   string `json:"embed_data"`
	Item        string `json:"item"`
	ZpTransID   int64  `json:"zp_trans_id"`
	ServerTime  int64  `json:"server_time"`
	Channel     int    `json:"channel"`
	MerchantID  string `json:"merchant_user_id"`
	UserFee     int64  `json:"user_fee_amount"`
	DiscountAmt int64  `json:"discount_amount"`
}
