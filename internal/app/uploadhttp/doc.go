// Package uploadhttp реализует HTTP-интерфейс сервиса докачки поверх локального диска.
// Основные эндпоинты:
//   - POST /upload — multipart-форма с полями fileHash, chunkHash и файлом chunk; сохраняет один чанк.
//   - POST /verify — сообщает, собран ли файл, и какие чанки уже есть на сервере.
//   - POST /merge — собирает итоговый файл из всех чанков.
//   - GET /files/{name} — отдаёт собранный файл <fileHash><ext>.
//   - GET /health — агрегированная статистика по каталогу загрузок.
//   - GET /metrics — метрики Prometheus.
//   - POST /admin/gc — ручной запуск очистки брошенных загрузок.
//   - GET /admin/uploads — журнал сессий.
package uploadhttp
