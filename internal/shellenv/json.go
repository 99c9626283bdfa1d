package shellenv

import "encoding/json"

// wireValue is the JSON-friendly mirror of Value. Value's fields are
// unexported (so that callers can't forge an inconsistent Kind/payload
// pairing), which means the encoding/json reflection-based codec needs an
// explicit bridge. This is only exercised by the executor's self-reexec
// path (internal/executor/wire.go), which must hand a Runnable tree -
// including any WithEnv overlay values - across a process boundary to a
// freshly exec'd child.
type wireValue struct {
	Kind Kind        `json:"kind"`
	Str  string      `json:"str,omitempty"`
	Int  int64       `json:"int,omitempty"`
	Flt  float64     `json:"flt,omitempty"`
	Bool bool        `json:"bool,omitempty"`
	List []wireValue `json:"list,omitempty"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	w := wireValue{Kind: v.Kind, Str: v.str, Int: v.i, Flt: v.f, Bool: v.b}
	if v.list != nil {
		w.List = make([]wireValue, len(v.list))
		for i, e := range v.list {
			b, err := e.MarshalJSON()
			if err != nil {
				return nil, err
			}
			var wv wireValue
			if err := json.Unmarshal(b, &wv); err != nil {
				return nil, err
			}
			w.List[i] = wv
		}
	}
	return json.Marshal(w)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*v = Value{Kind: w.Kind, str: w.Str, i: w.Int, f: w.Flt, b: w.Bool}
	if w.List != nil {
		v.list = make([]Value, len(w.List))
		for i, wv := range w.List {
			b, err := json.Marshal(wv)
			if err != nil {
				return err
			}
			var elem Value
			if err := json.Unmarshal(b, &elem); err != nil {
				return err
			}
			v.list[i] = elem
		}
	}
	return nil
}
