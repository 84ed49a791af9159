package common

func PanicIfErr(err error) {
	if err != nil {
		panic(err)
	}
}

// Assert panics with msg when cond does not hold.
func Assert(cond bool, msg string) {
	if !cond {
		panic(msg)
	}
}
