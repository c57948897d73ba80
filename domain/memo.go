package domain

import "encoding/json"

type Memorable interface {
	ToJson() string
	FromJson(jstr string) error
}

type Memo struct {
	Key  string `json:"key"`
	Memo string `json:"memo"`
}

// WatchMemo remembers where the event watcher left off for one account, so a
// restart resumes instead of replaying from genesis.
type WatchMemo struct {
	Account       string `json:"account"`
	LastSeenBlock uint64 `json:"last_seen_block"`
}

func (obj *WatchMemo) ToJson() string {
	jstr, err := json.Marshal(obj)
	if err != nil {
		return err.Error()
	}
	return string(jstr)
}

func (obj *WatchMemo) FromJson(jstr string) error {
	err := json.Unmarshal([]byte(jstr), obj)
	return err
}
