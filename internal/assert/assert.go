package assert

import "fmt"

func NotNil(value any) {
	if value == nil {
		panic("expected value to be not nil")
	}
}

// NotEmptyStr panics when str is empty, name identifies the argument in the panic message.
func NotEmptyStr(name, str string) {
	if str == "" {
		panic(fmt.Sprintf("expected %s to be a non-empty string", name))
	}
}
