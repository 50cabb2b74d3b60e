package test

import (
	"math/rand"
	"strings"
)

const validTokens = "if;else;log;for;in;and;or;not;ако;иначе;покажи;за;в;и;или;не;let;(;);{;};[;];\"this is a string\";\"this is a longer string containing a bunch of text: Lorem ipsum dolor sit amet, consectetur adipiscing elit, sed do eiusmod tempor incididunt ut labore et dolore magna aliqua. Ut enim ad minim veniam, quis nostrud exercitation ullamco laboris nisi ut aliquip ex ea commodo consequat.\";\"this is a small string\";\"\";+;-;*;/;%;==;!=;<=;>=;<;>;=;~;..<;..<=;..>;..>=;..;,;::;123;321;3.25;.5;identifier;another_name;true;false;//comment\n;\n"

func GetRandomTokens(size int) string {
	return GetRandomTokensWithSep(size, " ")
}

func GetRandomTokensWithSep(size int, sep string) string {
	valid := strings.Split(validTokens, ";")

	var toks []string
	for len(toks) < size {
		toks = append(toks, valid[rand.Intn(len(valid))])
	}

	return strings.Join(toks, sep)
}
