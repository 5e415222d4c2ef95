package main

/*
#include <stdlib.h>
*/
import "C"
import (
	"unsafe"
)

//export postgresql_is_valid
func postgresql_is_valid(text *C.char) C.int {
	if isValid(C.GoString(text)) {
		return 1
	}
	return 0
}

//export postgresql_parse
func postgresql_parse(text *C.char) *C.char {
	return C.CString(string(parseJSON(C.GoString(text))))
}

//export postgresql_tokenize
func postgresql_tokenize(text *C.char) *C.char {
	return C.CString(string(tokenizeJSON(C.GoString(text))))
}

// postgresql_open_store opens a git document store at path, or an
// in-memory one for an empty path. It returns -1 on failure.
//
//export postgresql_open_store
func postgresql_open_store(path *C.char) C.int {
	handle, err := openStore(C.GoString(path))
	if err != nil {
		return -1
	}
	return C.int(handle)
}

//export postgresql_check_store
func postgresql_check_store(handle C.int) *C.char {
	return C.CString(string(checkStoreJSON(int(handle))))
}

//export postgresql_close_store
func postgresql_close_store(handle C.int) {
	closeStore(int(handle))
}

//export postgresql_free
func postgresql_free(ptr *C.char) {
	C.free(unsafe.Pointer(ptr))
}

func main() {}
