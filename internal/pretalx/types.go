package pretalx

import "encoding/json"

// Page はページネーションAPIの1ページ分のレスポンスを表す。
// resultsの各要素はエンドポイントごとに形が異なるため、
// デコードは呼び出し側（catalogパッケージ）に委ねる。
type Page struct {
	// Count はエンドポイント全体の件数。レスポンスに含まれない場合は0。
	Count int `json:"count"`
	// Next は次ページのURL。最終ページではnullまたは欠落する。
	Next *string `json:"next"`
	// Results はこのページに含まれる生レコードのリスト。
	Results []json.RawMessage `json:"results"`
}

// HasNext は次ページが存在するかを返す。
// nullと欠落と空文字列はいずれも「次ページなし」として扱う。
func (p *Page) HasNext() bool {
	return p.Next != nil && *p.Next != ""
}
