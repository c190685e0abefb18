/*

Process of compilation

Program Text ->
	lex ->
Tokens (pulled on demand) ->
	parse ->
Abstract Syntax Tree (ast) ->
	back ->
Assembly Text (nasm, x86-64) ->
	assemble (nasm) ->
Object ->
	link (ld) ->
Binary Executable

*/
package compiler
