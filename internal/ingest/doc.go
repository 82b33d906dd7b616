// Package ingest ядро загрузки внешних данных: типизированное дерево
// RawNode, иерархический upsert по натуральному ключу, оркестратор
// элементов работы с проверкой свежести и изоляцией сбоев, итог запуска.
//
// Поток одного элемента: fetch -> normalize -> upsert (в глубину, родитель
// раньше детей, в порядке источника) -> commit. Ошибка элемента попадает в
// Result.Errors, сессия откатывается, запуск идёт дальше.
package ingest
